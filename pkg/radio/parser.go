package radio

import "fmt"

// Parser reassembles frames from a byte stream.
type Parser struct {
	body    []byte
	inFrame bool
	escape  bool
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.body, p.inFrame, p.escape = p.body[:0], false, false
}

// Parse consumes one byte. It returns a frame when b completes one,
// or an error when the frame being received is invalid. Bytes outside
// a frame are ignored.
func (p *Parser) Parse(b byte) (*Frame, error) {
	switch {
	case b == StartByte:
		p.Reset()
		p.inFrame = true
	case !p.inFrame:
	case b == EndByte:
		escape := p.escape
		p.inFrame, p.escape = false, false
		if escape {
			return nil, fmt.Errorf("%w: dangling escape", ErrMalformed)
		}
		return decodeBody(p.body)
	case b == EscByte:
		if p.escape {
			p.Reset()
			return nil, fmt.Errorf("%w: escaped escape byte", ErrMalformed)
		}
		p.escape = true
	default:
		if p.escape {
			b ^= EscXor
			p.escape = false
		}
		if len(p.body) >= maxBody {
			p.Reset()
			return nil, fmt.Errorf("%w: frame exceeds %d bytes", ErrMalformed, maxBody)
		}
		p.body = append(p.body, b)
	}
	return nil, nil
}
