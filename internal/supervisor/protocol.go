// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package supervisor

// Message IDs exchanged between the supervisor and a process-mode
// worker subprocess over a comms.MessageConnection: the supervisor
// sends exactly one MsgOrder, the worker streams zero or more
// MsgStat, then sends exactly one MsgResult and exits.
const (
	MsgOrder uint8 = iota + 1
	MsgStat
	MsgResult
)
