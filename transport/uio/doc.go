// Copyright (c) 2024 UIO register access for UIOuHAL.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package uio provides a transport for 32-bit registers exposed through the
// Linux user-space I/O (UIO) driver.
//
// # Address space
//
// Every UIO map (for example an AXI slave described in the device tree) is
// memory mapped into the client and placed in one flat logical word address
// space at a configured base address. An access is routed to the device with
// the greatest base not exceeding the address. The offset from that base must
// lie inside the device window, otherwise a *DeviceOutOfRangeError is
// returned before the hardware is touched.
//
// # Bus errors
//
// Slaves that do not answer make the kernel raise SIGBUS. Each load and store
// runs inside its own sigbus guard session, so the error comes back as a
// *sigbus.BusFaultError naming the register instead of killing the process.
// All accesses run on a dedicated OS thread which keeps SIGBUS blocked
// outside of guard sessions.
//
// # Usage
//
// Create a client from a device map file through the transport registry:
//
//	t, err := transport.New("uioaxi-1.0:///etc/uiouhal/devices.xml")
//	if err != nil {
//	    // handle error
//	}
//	conn, err := core.Connect(t)
//
// or configure devices directly:
//
//	client := uio.NewClient()
//	client.AddDevice(uio.DeviceConfig{Name: "PL_MEM", Base: 0x0, UIO: "PL_MEM"})
//	if err := client.Connect(); err != nil {
//	    // handle error
//	}
//	defer client.Disconnect()
//
// # Device map
//
//	<devices>
//	    <device id="PL_MEM" address="0x00000000" uio="PL_MEM"/>
//	    <device id="C2C" address="0x00010000" size="1024" path="/dev/uio3" map="0"/>
//	</devices>
//
// A missing size is read from /sys/class/uio/uioN/maps/mapM/size. A missing
// path is found by matching /sys/class/uio/uioN/name against uio (or id).
//
// # Limitations
//
//   - Only works on Linux.
//   - All guarded accesses in the process are serialized.
//   - An access that never completes and never faults blocks forever.
//   - Byte-order transactions are not implemented.
package uio
