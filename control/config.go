// control/config.go
// Author: momentics <momentics@gmail.com>
//
// File-backed server configuration. Defaults are overlaid by a YAML document.

package control

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/momentics/hioload-chat/api"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration of the chat server.
type Config struct {
	Listen           string        `yaml:"listen"`
	Trigger          string        `yaml:"trigger"`
	MaxDescriptors   int           `yaml:"max_descriptors"`
	MaxMessage       int           `yaml:"max_message"`
	ReadChunk        int           `yaml:"read_chunk"`
	MaxPending       int           `yaml:"max_pending"`
	PollBatch        int           `yaml:"poll_batch"`
	PollTimeout      time.Duration `yaml:"poll_timeout"`
	StatsInterval    time.Duration `yaml:"stats_interval"`
	AnnouncePresence bool          `yaml:"announce_presence"`
	Messages         Messages      `yaml:"messages"`
}

// Messages are the server's line templates. {id} and {msg} are substituted.
type Messages struct {
	Welcome   string `yaml:"welcome"`
	Broadcast string `yaml:"broadcast"`
	Caution   string `yaml:"caution"`
	Exit      string `yaml:"exit"`
	Joined    string `yaml:"joined"`
	Left      string `yaml:"left"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Listen:         "127.0.0.1:8888",
		Trigger:        "et",
		MaxDescriptors: 5000,
		MaxMessage:     0xFFFF,
		ReadChunk:      0xFFFF,
		MaxPending:     16 * 0xFFFF,
		PollBatch:      128,
		PollTimeout:    100 * time.Millisecond,
		StatsInterval:  0,
		Messages: Messages{
			Welcome:   "Welcome you join to the chat room! Your chat ID is: Client #{id}",
			Broadcast: "ClientID {id} say >> {msg}",
			Caution:   "There is only one in the chat room!",
			Exit:      "EXIT",
			Joined:    "ClientID {id} joined the chat room",
			Left:      "ClientID {id} left the chat room",
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Mode parses the trigger field.
func (c *Config) Mode() (api.TriggerMode, error) {
	return api.ParseTriggerMode(c.Trigger)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen: empty address"))
	}
	if _, err := c.Mode(); err != nil {
		errs = append(errs, fmt.Errorf("trigger: %w", err))
	}
	if c.MaxDescriptors < 2 {
		errs = append(errs, fmt.Errorf("max_descriptors: %d, need room for listener and a client", c.MaxDescriptors))
	}
	if c.MaxMessage <= 0 {
		errs = append(errs, fmt.Errorf("max_message: %d", c.MaxMessage))
	}
	if c.ReadChunk <= 0 {
		errs = append(errs, fmt.Errorf("read_chunk: %d", c.ReadChunk))
	}
	if need := c.MaxMessage + c.BroadcastOverhead(); c.MaxPending < need {
		errs = append(errs, fmt.Errorf("max_pending: %d cannot hold one broadcast of max_message %d (%d bytes)",
			c.MaxPending, c.MaxMessage, need))
	}
	if c.PollBatch <= 0 {
		errs = append(errs, fmt.Errorf("poll_batch: %d", c.PollBatch))
	}
	if c.PollTimeout <= 0 {
		errs = append(errs, fmt.Errorf("poll_timeout: %v, must be bounded and positive", c.PollTimeout))
	}
	if c.StatsInterval < 0 {
		errs = append(errs, fmt.Errorf("stats_interval: %v", c.StatsInterval))
	}
	if c.Messages.Exit == "" {
		errs = append(errs, errors.New("messages.exit: empty command"))
	}
	if !strings.Contains(c.Messages.Broadcast, "{msg}") {
		errs = append(errs, errors.New("messages.broadcast: missing {msg}"))
	}
	return errors.Join(errs...)
}

// maxIDWidth is the decimal width of the largest session identity.
const maxIDWidth = len("18446744073709551615")

// BroadcastOverhead is the number of bytes a rendered broadcast line adds to
// the message itself: the template text around {msg}, the widest identity
// and the trailing newline.
func (c *Config) BroadcastOverhead() int {
	tmpl := c.Messages.Broadcast
	return len(tmpl) - strings.Count(tmpl, "{msg}")*len("{msg}") +
		strings.Count(tmpl, "{id}")*(maxIDWidth-len("{id}")) + 1
}
