// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the raw, non-blocking TCP listener and connection
// types the chat reactor drives. Every socket it hands out is non-blocking
// and close-on-exec from the moment it is constructed.
package tcp
