// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "time"

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)
