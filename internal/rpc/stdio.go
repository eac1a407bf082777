package rpc

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// MaxLineBytes bounds one newline-delimited message on the stdio
// transport.
const MaxLineBytes = 16 << 20

// ServeStdio reads newline-delimited requests from r and writes one
// response line per request to w, until r is exhausted or ctx is done.
func ServeStdio(ctx context.Context, s *Server, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	bw := bufio.NewWriter(w)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		resp := s.HandleMessage(ctx, line)
		if resp == nil {
			continue
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		if _, err := bw.Write(append(data, '\n')); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
	}
	return sc.Err()
}
