package wire

// MAVLink framing constants. Only the fields needed to pull the message
// identifier out of a payload header are handled here; full frame
// validation (CRC, signing) belongs to the protocol layer that owns the
// wire format.
const (
	magicV1 = 0xFE
	magicV2 = 0xFD

	v1HeaderLen = 6  // stx, len, seq, sysid, compid, msgid
	v2HeaderLen = 10 // stx, len, incompat, compat, seq, sysid, compid, msgid[3]
)

// ExtractMsgID reads the message-type identifier from a MAVLink v1 or v2
// header. Returns false for payloads too short to hold a header or with an
// unknown start byte.
func ExtractMsgID(payload []byte) (MsgID, bool) {
	if len(payload) < v1HeaderLen {
		return 0, false
	}
	switch payload[0] {
	case magicV1:
		return MsgID(payload[5]), true
	case magicV2:
		if len(payload) < v2HeaderLen {
			return 0, false
		}
		id := uint32(payload[7]) | uint32(payload[8])<<8 | uint32(payload[9])<<16
		return MsgID(id), true
	}
	return 0, false
}

// BuildV2 assembles a minimal MAVLink v2 frame around body. The checksum
// field is filled with a placeholder; bench traffic only needs the header
// fields that ExtractMsgID reads.
func BuildV2(seq, sysID, compID uint8, id MsgID, body []byte) []byte {
	frame := make([]byte, 0, v2HeaderLen+len(body)+2)
	frame = append(frame,
		magicV2,
		uint8(len(body)),
		0, // incompat flags
		0, // compat flags
		seq,
		sysID,
		compID,
		uint8(id),
		uint8(id>>8),
		uint8(id>>16),
	)
	frame = append(frame, body...)
	frame = append(frame, 0xFF, 0xFF)
	return frame
}
