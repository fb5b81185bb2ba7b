// Package radio provides an acknowledged point-to-point link over a
// serial radio modem and the telemetry transmitter built on it.
package radio

// Frames are delimited by StartByte and EndByte. Inside, the header
// (network, destination, source, sequence, control, length), the
// payload and a big-endian CRC-16-CCITT are byte-stuffed so neither
// delimiter appears in the body.
//
// A data frame requesting an acknowledgment is answered with an ack
// frame carrying the same sequence number. The sender waits a bounded
// time for it and retries a configured number of times. The receiver
// acknowledges duplicates again but delivers them only once.
