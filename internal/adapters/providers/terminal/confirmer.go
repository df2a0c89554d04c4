package terminal

import (
	"context"
	"io"
	"strings"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
)

// Confirmer asks for a yes/no answer. Anything but an explicit yes declines.
type Confirmer struct {
	prompter *Prompter
}

var _ providers.Confirmer = (*Confirmer)(nil)

// NewConfirmer creates a terminal confirmer
func NewConfirmer(prompter *Prompter) *Confirmer {
	return &Confirmer{prompter: prompter}
}

// Confirm implements providers.Confirmer
func (c *Confirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	answer, err := c.prompter.Ask(ctx, prompt+" [y/N]: ")
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
