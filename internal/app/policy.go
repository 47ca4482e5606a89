package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/peerrank-backend/internal/data/aggregates"
)

// RankingPolicy is the optional YAML policy file.
//
//	ledger:
//	  readOnlyPolicy: proceed
//	slots:
//	  submissions: 3
//	  comments: 3
//	  projects:
//	    6f1c...: 5
type RankingPolicy struct {
	Ledger struct {
		ReadOnlyPolicy string `yaml:"readOnlyPolicy"`
	} `yaml:"ledger"`
	Slots struct {
		Submissions int            `yaml:"submissions"`
		Comments    int            `yaml:"comments"`
		Projects    map[string]int `yaml:"projects"`
	} `yaml:"slots"`
}

func LoadRankingPolicy(path string) (RankingPolicy, error) {
	var p RankingPolicy
	buf, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("error reading policy file: %w", err)
	}
	if err := yaml.Unmarshal(buf, &p); err != nil {
		return p, fmt.Errorf("error parsing policy file: %w", err)
	}
	if _, err := p.SlotPolicy(); err != nil {
		return p, err
	}
	switch strings.ToLower(strings.TrimSpace(p.Ledger.ReadOnlyPolicy)) {
	case "", string(aggregates.ReadOnlyReject), string(aggregates.ReadOnlyProceed):
	default:
		return p, fmt.Errorf("policy file: unknown ledger.readOnlyPolicy %q", p.Ledger.ReadOnlyPolicy)
	}
	return p, nil
}

// SlotPolicy converts the file's slot section.
func (p RankingPolicy) SlotPolicy() (aggregates.SlotPolicy, error) {
	out := aggregates.SlotPolicy{
		SubmissionSlots:     p.Slots.Submissions,
		DefaultCommentSlots: p.Slots.Comments,
	}
	if p.Slots.Submissions < 0 || p.Slots.Comments < 0 {
		return out, fmt.Errorf("policy file: slot counts must not be negative")
	}
	if len(p.Slots.Projects) > 0 {
		out.CommentSlotOverrides = make(map[uuid.UUID]int, len(p.Slots.Projects))
		for raw, n := range p.Slots.Projects {
			id, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				return out, fmt.Errorf("policy file: bad project id %q: %w", raw, err)
			}
			if n <= 0 {
				return out, fmt.Errorf("policy file: project %s: slots must be positive", id)
			}
			out.CommentSlotOverrides[id] = n
		}
	}
	return out, nil
}
