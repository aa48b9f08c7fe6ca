package tracksynth

import "fmt"

// BadModule reports a magic-signature mismatch or other structural
// rejection during format sniffing or parsing.
type BadModule struct {
	Format string
	Reason string
}

func (e *BadModule) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("bad %s module", e.Format)
	}
	return fmt.Sprintf("bad %s module: %s", e.Format, e.Reason)
}

// TruncatedFile reports a read or seek that ran off the end of the
// file while the loader still expected more content.
type TruncatedFile struct {
	Format string
	Where  string
}

func (e *TruncatedFile) Error() string {
	return fmt.Sprintf("%s: truncated file at %s", e.Format, e.Where)
}

// InvalidField reports a size or index field outside its documented
// contract (orders > 128, envelope nodes > 25, NNA > 3, an out-of-
// bounds pattern pointer, ...).
type InvalidField struct {
	Where string
	Value int
}

func (e *InvalidField) Error() string {
	return fmt.Sprintf("invalid field %s: %d", e.Where, e.Value)
}

// ErrCompressedStreamCorrupt is returned by the IT sample decompressor
// when the bitstream read runs past EOF or a width-change sequence
// never terminates.
type ErrCompressedStreamCorrupt struct {
	Reason string
}

func (e *ErrCompressedStreamCorrupt) Error() string {
	return fmt.Sprintf("corrupt IT compressed sample stream: %s", e.Reason)
}

// ErrUnsupportedFormat is returned for a format that was detected but
// deliberately left unimplemented (e.g. Future Composer).
type ErrUnsupportedFormat struct {
	Format string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.Format)
}

// Pull-API sentinel errors (§6). FillBuffer callers that need the
// legacy numeric contract (-1/-2/-3) map these at the boundary.
var (
	ErrDecoder     = fmt.Errorf("unrecoverable decoder error")
	ErrEndOfStream = fmt.Errorf("end of stream")
	ErrInvalidArgs = fmt.Errorf("invalid arguments")
	ErrNotPlayable = fmt.Errorf("source is not playable")
)
