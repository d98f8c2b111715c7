package models

import (
	"fmt"
	"strings"
)

// ActionKind is one of the subtitle-maintenance operations the remote service can perform.
type ActionKind int

const (
	ActionSync ActionKind = iota
	ActionOCRFixes
	ActionCommonFixes
	ActionRemoveHearingImpaired
	ActionRemoveStyleTags
	ActionFixUppercase
	ActionReverseRTL
)

// AllActions lists every action in CLI order.
var AllActions = []ActionKind{
	ActionSync,
	ActionOCRFixes,
	ActionCommonFixes,
	ActionRemoveHearingImpaired,
	ActionRemoveStyleTags,
	ActionFixUppercase,
	ActionReverseRTL,
}

// Code returns the value sent as the "action" query parameter.
func (a ActionKind) Code() string {
	switch a {
	case ActionSync:
		return "sync"
	case ActionOCRFixes:
		return "OCR_fixes"
	case ActionCommonFixes:
		return "common"
	case ActionRemoveHearingImpaired:
		return "remove_HI"
	case ActionRemoveStyleTags:
		return "remove_tags"
	case ActionFixUppercase:
		return "fix_uppercase"
	case ActionReverseRTL:
		return "reverse_rtl"
	default:
		return ""
	}
}

// Command returns the CLI subcommand name of the action.
func (a ActionKind) Command() string {
	switch a {
	case ActionSync:
		return "sync"
	case ActionOCRFixes:
		return "ocr-fixes"
	case ActionCommonFixes:
		return "common-fixes"
	case ActionRemoveHearingImpaired:
		return "remove-hearing-impaired"
	case ActionRemoveStyleTags:
		return "remove-style-tags"
	case ActionFixUppercase:
		return "fix-uppercase"
	case ActionReverseRTL:
		return "reverse-rtl"
	default:
		return ""
	}
}

// Description is the one-line help text of the action.
func (a ActionKind) Description() string {
	switch a {
	case ActionSync:
		return "Sync all subtitles"
	case ActionOCRFixes:
		return "Perform OCR fixes"
	case ActionCommonFixes:
		return "Perform common fixes"
	case ActionRemoveHearingImpaired:
		return "Remove hearing impaired tags from subtitles"
	case ActionRemoveStyleTags:
		return "Remove style tags from subtitles"
	case ActionFixUppercase:
		return "Fix uppercase subtitles"
	case ActionReverseRTL:
		return "Reverse RTL directioned subtitles"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (a ActionKind) String() string {
	return a.Command()
}

// ParseActionKind accepts either the CLI command name or the remote action code.
func ParseActionKind(s string) (ActionKind, error) {
	for _, a := range AllActions {
		if strings.EqualFold(s, a.Command()) || s == a.Code() {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// SyncOptions are the extra parameters accepted by the sync action.
// Zero values are omitted from the request.
type SyncOptions struct {
	Reference        string `json:"reference,omitempty"`
	MaxOffsetSeconds int    `json:"max_offset_seconds,omitempty"`
	NoFixFramerate   bool   `json:"no_fix_framerate,omitempty"`
	GSS              bool   `json:"gss,omitempty"`
}

// Action is the selected operation. Only ActionSync carries Sync options.
type Action struct {
	Kind ActionKind
	Sync *SyncOptions
}

// NewAction builds an action that carries no options.
func NewAction(kind ActionKind) Action {
	return Action{Kind: kind}
}

// NewSyncAction builds a sync action with its options.
func NewSyncAction(opts SyncOptions) Action {
	return Action{Kind: ActionSync, Sync: &opts}
}

// ActionRequest is the JSON body of the subtitle mutation call.
// The embedded sync options are flattened into the body and left out entirely when nil.
type ActionRequest struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Language string `json:"language"`
	Path     string `json:"path"`
	*SyncOptions
	Action ActionKind `json:"-"`
}

// NewActionRequest builds the request for one subtitle of a record.
func NewActionRequest(rec Record, sub Subtitle, action Action) ActionRequest {
	req := ActionRequest{
		ID:       rec.ID,
		Type:     rec.Kind.String(),
		Language: sub.LanguageCode(),
		Path:     sub.FilePath(),
		Action:   action.Kind,
	}
	if action.Kind == ActionSync && action.Sync != nil {
		opts := *action.Sync
		req.SyncOptions = &opts
	}
	return req
}
