package runtime

import (
	"context"
	"errors"
	"io"
)

// ChunkSize is the read size used by Pump.
const ChunkSize = 32 * 1024

// Consumer receives the chunks of one render pass.
type Consumer interface {
	// Data is called for every chunk in emission order. The slice is only
	// valid until Data returns.
	Data(chunk []byte) error
	// End is called once, after the last chunk.
	End() error
}

// Pump drains r into c and drives p to its terminal state.
// Every Data call happens before End; exactly one of Complete or Fail is
// applied to p. The returned error is the first failure from r, c or ctx.
func Pump(ctx context.Context, p *Pass, r io.Reader, c Consumer) error {
	buf := make([]byte, ChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			p.Fail()
			return err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			if !p.Accumulate(n) {
				return errors.New("render pass already terminated")
			}
			if err := c.Data(buf[:n]); err != nil {
				p.Fail()
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			p.Fail()
			return rerr
		}
	}
	if err := c.End(); err != nil {
		p.Fail()
		return err
	}
	if !p.Complete() {
		return errors.New("render pass already terminated")
	}
	return nil
}
