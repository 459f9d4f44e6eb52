// Copyright 2025 The MCU Core authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package flash

import (
	"encoding/binary"

	"k8s.io/klog/v2"
)

// Mailbox flash commands.
const (
	CmdRead  = 1
	CmdWrite = 2
	CmdErase = 3
)

// Target status register encoding: completion code in the low nibble, done
// bit above it.
const (
	StatusCmdComplete = 0x1
	StatusCmdFailure  = 0x2
	StatusDone        = 0x10

	statusMask = 0xf
)

// sramWords is the mailbox SRAM size: two parameter words plus one page of
// data.
const sramWords = 2 + PageSize/4

// Mailbox is the register file shared between a requester and the flash
// controller. The requester fills Cmd and the SRAM parameter words, raises
// Execute, waits for the done bit in TargetStatus, then clears Execute.
type Mailbox struct {
	// Execute is raised by the requester to submit a command.
	Execute uint32
	// Cmd selects the operation (CmdRead, CmdWrite, CmdErase).
	Cmd uint32
	// Dlen is set by the controller to the response byte count.
	Dlen uint32
	// TargetStatus is set by the controller on completion.
	TargetStatus uint32
	// SRAM carries parameters and page data: word 0 is the page number,
	// word 1 the page size, words 2+ the page contents for writes. Read
	// responses overwrite the SRAM from word 0.
	SRAM [sramWords]uint32
}

// Status returns the completion code from the target status register.
func (m *Mailbox) Status() uint32 {
	return m.TargetStatus & statusMask
}

// Done reports whether the controller has completed the submitted command.
func (m *Mailbox) Done() bool {
	return m.TargetStatus&StatusDone != 0
}

// Controller services mailbox flash commands against a page device,
// emulating the hardware flash controller's register protocol.
type Controller struct {
	dev Device
}

// NewController returns a controller backed by dev.
func NewController(dev Device) *Controller {
	return &Controller{dev: dev}
}

// Process services the command in mb if its execute bit is raised. It sets
// the target status register (with the done bit) on completion; command
// failures are reported there, not as an error. The requester is
// responsible for clearing the execute bit afterwards.
func (c *Controller) Process(mb *Mailbox) {
	if mb.Execute == 0 {
		return
	}

	pageNum := mb.SRAM[0]
	pageSize := mb.SRAM[1]
	klog.V(2).Infof("mailbox: cmd=%d page=%d size=%d", mb.Cmd, pageNum, pageSize)

	status := uint32(StatusCmdFailure)
	if pageNum < c.dev.NumPages() && pageSize == PageSize {
		switch mb.Cmd {
		case CmdRead:
			page := make([]byte, PageSize)
			if err := c.dev.ReadPage(pageNum, page); err != nil {
				klog.Errorf("mailbox: read page %d: %v", pageNum, err)
				break
			}
			for i := 0; i < PageSize/4; i++ {
				mb.SRAM[i] = binary.LittleEndian.Uint32(page[i*4:])
			}
			mb.Dlen = PageSize
			status = StatusCmdComplete
		case CmdWrite:
			page := make([]byte, PageSize)
			for i := 0; i < PageSize/4; i++ {
				binary.LittleEndian.PutUint32(page[i*4:], mb.SRAM[2+i])
			}
			if err := c.dev.WritePage(pageNum, page); err != nil {
				klog.Errorf("mailbox: write page %d: %v", pageNum, err)
				break
			}
			status = StatusCmdComplete
		case CmdErase:
			if err := c.dev.ErasePage(pageNum); err != nil {
				klog.Errorf("mailbox: erase page %d: %v", pageNum, err)
				break
			}
			status = StatusCmdComplete
		default:
			klog.Warningf("mailbox: unknown command %d", mb.Cmd)
		}
	}

	mb.TargetStatus = (status & statusMask) | StatusDone
}
