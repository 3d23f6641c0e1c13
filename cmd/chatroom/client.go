package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"
)

var (
	clientAddr    string
	clientTimeout time.Duration
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Connect to a chat server: stdin lines are sent, server lines are printed",
	Args:  cobra.NoArgs,
	RunE:  runClient,
}

func init() {
	clientCmd.Flags().StringVar(&clientAddr, "addr", "127.0.0.1:8888", "server address")
	clientCmd.Flags().DurationVar(&clientTimeout, "timeout", 5*time.Second, "dial timeout")
}

// runClient returns as soon as the server closes the connection, even while
// stdin is still open.
func runClient(cmd *cobra.Command, _ []string) error {
	conn, err := net.DialTimeout("tcp", clientAddr, clientTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", clientAddr, err)
	}
	defer conn.Close()

	received := make(chan error, 1)
	go func() {
		_, err := io.Copy(cmd.OutOrStdout(), conn)
		received <- err
	}()
	sent := make(chan error, 1)
	go func() { sent <- sendLines(conn, cmd.InOrStdin()) }()

	select {
	case err = <-received:
	case err = <-sent:
		if err == nil {
			if tcp, ok := conn.(*net.TCPConn); ok {
				_ = tcp.CloseWrite()
			}
			err = <-received
		}
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "connection closed")
	return nil
}

func sendLines(w io.Writer, r io.Reader) error {
	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 1<<16), 1<<17)
	for in.Scan() {
		if _, err := fmt.Fprintf(w, "%s\n", in.Text()); err != nil {
			return err
		}
	}
	return in.Err()
}
