// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "strings"

// Group is an independently applied subset of AppConfig fields.
type Group uint8

const (
	GroupAutoStart Group = 1 << iota
	GroupAPIKey
	GroupUserProxy
	GroupSystemProxy
	GroupEndpoint
)

// AllGroups is the set of every group.
const AllGroups = Groups(GroupAutoStart | GroupAPIKey | GroupUserProxy | GroupSystemProxy | GroupEndpoint)

var groupOrder = []Group{GroupAutoStart, GroupAPIKey, GroupUserProxy, GroupSystemProxy, GroupEndpoint}

// String returns the group name.
func (g Group) String() string {
	switch g {
	case GroupAutoStart:
		return "autostart"
	case GroupAPIKey:
		return "api_key"
	case GroupUserProxy:
		return "user_proxy"
	case GroupSystemProxy:
		return "system_proxy"
	case GroupEndpoint:
		return "endpoint"
	}
	return "unknown"
}

// Groups is a set of groups.
type Groups uint8

// Has reports whether g is in the set.
func (s Groups) Has(g Group) bool {
	return s&Groups(g) != 0
}

// Empty reports whether the set has no groups.
func (s Groups) Empty() bool {
	return s == 0
}

// List returns the groups of the set in apply order.
func (s Groups) List() []Group {
	var out []Group
	for _, g := range groupOrder {
		if s.Has(g) {
			out = append(out, g)
		}
	}
	return out
}

// String renders the set for logs.
func (s Groups) String() string {
	var names []string
	for _, g := range s.List() {
		names = append(names, g.String())
	}
	return strings.Join(names, ",")
}

// Diff returns the groups whose fields differ between old and next. A nil old
// means every group differs.
func Diff(old *AppConfig, next AppConfig) Groups {
	if old == nil {
		return AllGroups
	}

	var changed Groups
	if old.AutoStart != next.AutoStart {
		changed |= Groups(GroupAutoStart)
	}
	if old.APIKey != next.APIKey {
		changed |= Groups(GroupAPIKey)
	}
	if old.UserProxy != next.UserProxy {
		changed |= Groups(GroupUserProxy)
	}
	if old.EnableSystemProxy != next.EnableSystemProxy {
		changed |= Groups(GroupSystemProxy)
	}
	if old.BaseURL != next.BaseURL || old.Model != next.Model {
		changed |= Groups(GroupEndpoint)
	}
	return changed
}
