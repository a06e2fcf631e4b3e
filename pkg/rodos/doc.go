// Package rodos implements the RODOS CAN fragmentation protocol.
//
// A RODOS message on topic T sent by device D is split into fragments of
// at most 5 bytes, each carried by an extended CAN frame with identifier
//
//	0x1C<<24 | T<<8 | D
//
// and data [seq_num, 0, seq_len, payload...]. Fragments are numbered from
// 0 and the last one has seq_num == seq_len.
package rodos
