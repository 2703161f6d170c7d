// Command kvhub-cli is a minimal interactive client for a kvhub
// server: it reads one line at a time, sends it as a text-dialect
// request, and prints the decoded reply. It speaks the same
// whitespace-tokenized, quote-supporting dialect the server accepts
// from any plain-text client, rather than framing RESP arrays itself.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/kvhub/kvhub/resp"
)

func main() {
	var addr string
	var timeout time.Duration
	flag.StringVar(&addr, "addr", "127.0.0.1:9876", "server address")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "connection and read timeout")
	flag.Parse()

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kvhub-cli: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("connected to %s\n", addr)
	runREPL(conn, timeout)
}

func runREPL(conn net.Conn, timeout time.Duration) {
	stdin := bufio.NewScanner(os.Stdin)
	reader := bufio.NewReader(conn)

	for {
		fmt.Print("kvhub> ")
		if !stdin.Scan() {
			return
		}
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return
		}

		if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			return
		}

		conn.SetReadDeadline(time.Now().Add(timeout))
		v, err := readOneReply(reader)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return
		}
		fmt.Println(formatValue(v))
	}
}

// readOneReply decodes a single RESP value from a buffered connection
// reader, growing a local scratch buffer and re-peeking whenever
// resp.Decode reports ErrIncomplete — the same fill-then-retry loop
// the server's own framing performs in OnTraffic, run here against a
// bufio.Reader instead of a gnet.Conn.
func readOneReply(r *bufio.Reader) (resp.Value, error) {
	var buf []byte
	for {
		n, v, err := resp.Decode(buf)
		if err == nil {
			_ = n
			return v, nil
		}
		if err != resp.ErrIncomplete {
			return resp.Value{}, err
		}
		b, err := r.ReadByte()
		if err != nil {
			return resp.Value{}, err
		}
		buf = append(buf, b)
	}
}

func formatValue(v resp.Value) string {
	switch v.Kind {
	case resp.KindSimpleString:
		return string(v.Str)
	case resp.KindError:
		return "(error) " + string(v.Str)
	case resp.KindInteger:
		return fmt.Sprintf("(integer) %d", v.Int)
	case resp.KindBulkString:
		if v.IsNull {
			return "(nil)"
		}
		return fmt.Sprintf("%q", string(v.Bulk))
	case resp.KindArray:
		if v.IsNull {
			return "(nil)"
		}
		if len(v.Array) == 0 {
			return "(empty array)"
		}
		lines := make([]string, len(v.Array))
		for i, item := range v.Array {
			lines[i] = fmt.Sprintf("%d) %s", i+1, formatValue(item))
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}
