// Package lst provides the serial link protocol spoken by the radio modem.
package lst

// The modem (RocketLST/OpenLST firmware) exchanges length-delimited frames
// over a UART. Each frame starts with a two byte magic, followed by a length
// byte counting everything after itself, a 5-byte header and the payload:
//
//	0x22 0x69 LEN HWID_LO HWID_HI SEQ_LO SEQ_HI DEST payload...
//
// There is no checksum on the serial side. Robustness comes from resyncing
// on the magic: any garbage between frames is skipped, a bad length drops
// the deframer back into sync search.
//
// Frames addressed to DestinationLocal carry replies of the modem itself
// (ack, nack, telemetry). Frames addressed to DestinationRelay carry opaque
// data received over the radio from the peer modem.
//
// Producer: modem firmware
// Consumer: relay controller
