package interfaces

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// The binary encoding uses fixed-width little-endian integers: byte slices and
// strings carry a u64 length prefix, fixed-size arrays are written raw, and
// enum variants are introduced by a u32 index (Success = 0, Error = 1).

const (
	variantSuccess uint32 = 0
	variantError   uint32 = 1
)

type binaryWriter struct {
	buf []byte
}

func (w *binaryWriter) fixed(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *binaryWriter) bytes(b []byte) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *binaryWriter) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *binaryWriter) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

type binaryReader struct {
	buf []byte
	err error
}

func (r *binaryReader) take(n uint64, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.buf)) {
		r.err = malformed("%s: need %d bytes, have %d", what, n, len(r.buf))
		return nil
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]
	return out
}

func (r *binaryReader) fixed(out []byte, what string) {
	copy(out, r.take(uint64(len(out)), what))
}

func (r *binaryReader) bytes(what string) []byte {
	raw := r.take(8, what+" length")
	if r.err != nil {
		return nil
	}
	n := binary.LittleEndian.Uint64(raw)
	if n > math.MaxInt32 {
		r.err = malformed("%s: length %d too large", what, n)
		return nil
	}
	body := r.take(n, what)
	if r.err != nil {
		return nil
	}
	return append(make([]byte, 0, len(body)), body...)
}

func (r *binaryReader) u8(what string) uint8 {
	raw := r.take(1, what)
	if r.err != nil {
		return 0
	}
	return raw[0]
}

func (r *binaryReader) u32(what string) uint32 {
	raw := r.take(4, what)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(raw)
}

func (r *binaryReader) finish(what string) error {
	if r.err != nil {
		return r.err
	}
	if len(r.buf) != 0 {
		return malformed("%s: %d trailing bytes", what, len(r.buf))
	}
	return nil
}

// MarshalBinary encodes id || program || stdin.
func (req TEERequest) MarshalBinary() ([]byte, error) {
	w := &binaryWriter{buf: make([]byte, 0, 32+16+len(req.Program)+len(req.Stdin))}
	w.fixed(req.ID[:])
	w.bytes(req.Program)
	w.bytes(req.Stdin)
	return w.buf, nil
}

func (req *TEERequest) UnmarshalBinary(data []byte) error {
	r := &binaryReader{buf: data}
	var decoded TEERequest
	r.fixed(decoded.ID[:], "request id")
	decoded.Program = r.bytes("program")
	decoded.Stdin = r.bytes("stdin")
	if err := r.finish("request"); err != nil {
		return err
	}
	*req = decoded
	return nil
}

func (resp *TEEResponse) appendBinary(w *binaryWriter) {
	w.fixed(resp.VKey[:])
	w.bytes(resp.PublicValues)
	w.fixed(resp.Signature.R[:])
	w.fixed(resp.Signature.S[:])
	w.u8(resp.RecoveryID)
}

func (resp *TEEResponse) readBinary(r *binaryReader) {
	r.fixed(resp.VKey[:], "vkey")
	resp.PublicValues = r.bytes("public values")
	r.fixed(resp.Signature.R[:], "signature r")
	r.fixed(resp.Signature.S[:], "signature s")
	resp.RecoveryID = r.u8("recovery id")
}

// MarshalBinary encodes vkey || public_values || r || s || recovery_id.
func (resp TEEResponse) MarshalBinary() ([]byte, error) {
	w := &binaryWriter{buf: make([]byte, 0, 32+8+len(resp.PublicValues)+64+1)}
	resp.appendBinary(w)
	return w.buf, nil
}

func (resp *TEEResponse) UnmarshalBinary(data []byte) error {
	r := &binaryReader{buf: data}
	var decoded TEEResponse
	decoded.readBinary(r)
	if err := r.finish("response"); err != nil {
		return err
	}
	*resp = decoded
	return nil
}

// MarshalEventPayloadBinary encodes an event as a u32 variant index followed
// by the variant's payload.
func MarshalEventPayloadBinary(event EventPayload) ([]byte, error) {
	w := &binaryWriter{}
	switch ev := event.(type) {
	case *SuccessEvent:
		w.u32(variantSuccess)
		ev.Response.appendBinary(w)
	case *ErrorEvent:
		w.u32(variantError)
		w.bytes([]byte(ev.Message))
	default:
		return nil, malformed("unsupported event payload %T", event)
	}
	return w.buf, nil
}

// UnmarshalEventPayloadBinary decodes the output of MarshalEventPayloadBinary.
func UnmarshalEventPayloadBinary(data []byte) (EventPayload, error) {
	r := &binaryReader{buf: data}
	variant := r.u32("event variant")
	if r.err != nil {
		return nil, r.err
	}

	var event EventPayload
	switch variant {
	case variantSuccess:
		success := &SuccessEvent{}
		success.Response.readBinary(r)
		event = success
	case variantError:
		message := r.bytes("error message")
		if r.err == nil && !utf8.Valid(message) {
			return nil, malformed("error message is not valid utf-8")
		}
		event = &ErrorEvent{Message: string(message)}
	default:
		return nil, malformed("unknown event variant %d", variant)
	}

	if err := r.finish("event"); err != nil {
		return nil, err
	}
	return event, nil
}
