package binding

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

// ResolvedNode is a canvas node with its content fixed for one certificate.
type ResolvedNode struct {
	ID        string
	Kind      domain.NodeKind
	Text      string
	X         float64
	Y         float64
	FontSize  float64
	FontColor string
	Size      int
	Image     []byte
}

// MaterializedArtifact is a template with placeholders resolved for one
// data row, ready for export.
type MaterializedArtifact struct {
	TemplateID    uuid.UUID
	CertificateID uuid.UUID
	Width         int
	Height        int
	Nodes         []ResolvedNode
}

type Engine interface {
	Bind(ctx context.Context, tpl *domain.TemplateDocument, row domain.DataRow, certificateID uuid.UUID) (*MaterializedArtifact, error)
	// RegenerateVerificationImage re-renders just the QR image for live
	// re-styling without a full bind.
	RegenerateVerificationImage(ctx context.Context, certificateID uuid.UUID, style QRStyle) ([]byte, error)
}

type engine struct {
	log           *logger.Logger
	publicBaseURL string
}

func NewEngine(baseLog *logger.Logger, publicBaseURL string) Engine {
	return &engine{
		log:           baseLog.With("component", "BindingEngine"),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (e *engine) Bind(ctx context.Context, tpl *domain.TemplateDocument, row domain.DataRow, certificateID uuid.UUID) (*MaterializedArtifact, error) {
	nodes, err := tpl.Nodes()
	if err != nil {
		return nil, fmt.Errorf("decode canvas graph: %w", err)
	}

	artifact := &MaterializedArtifact{
		TemplateID:    tpl.ID,
		CertificateID: certificateID,
		Width:         tpl.Width,
		Height:        tpl.Height,
		Nodes:         make([]ResolvedNode, 0, len(nodes)),
	}

	for _, n := range nodes {
		resolved := ResolvedNode{
			ID:        n.ID,
			Kind:      n.Kind,
			Text:      n.Text,
			X:         n.X,
			Y:         n.Y,
			FontSize:  n.FontSize,
			FontColor: n.FontColor,
			Size:      n.Size,
		}

		switch n.Kind {
		case domain.NodeKindBindable:
			if val, ok := row[n.DynamicKey]; ok && val != nil {
				resolved.Text = stringify(val)
			}
			// Absent key: the template's placeholder text stands in.
		case domain.NodeKindVerification:
			style := QRStyle{Size: n.Size, Foreground: n.Foreground, Background: n.Background}
			img, err := e.RegenerateVerificationImage(ctx, certificateID, style)
			if err != nil {
				// RegenerateVerificationImage already degrades to a
				// placeholder; this branch only guards a future regression.
				e.log.Warn("verification image generation failed", "certificate_id", certificateID.String(), "error", err)
			}
			resolved.Image = img
		}

		artifact.Nodes = append(artifact.Nodes, resolved)
	}

	return artifact, nil
}

func (e *engine) VerificationURL(certificateID uuid.UUID) string {
	return fmt.Sprintf("%s/verify/%s", e.publicBaseURL, certificateID.String())
}

// stringify coerces any scalar a dataset row can carry into display text.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
