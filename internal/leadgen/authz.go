package leadgen

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vilaweb/leadgen-cli/internal/model"
	"github.com/vilaweb/leadgen-cli/internal/store"
)

// authorize verifies the operator exists, is active, and holds a role in
// the generation allow-list. It runs before every provider attempt and
// again before every persistence batch.
func (s *Service) authorize(ctx context.Context, operatorID string) (*model.Operator, error) {
	if operatorID == "" {
		return nil, ErrPermissionDenied
	}

	op, err := s.store.GetOperator(ctx, operatorID)
	if errors.Is(err, store.ErrNotFound) {
		zap.L().Warn("leadgen: unknown operator", zap.String("operator_id", operatorID))
		return nil, ErrPermissionDenied
	}
	if err != nil {
		return nil, eris.Wrapf(err, "leadgen: look up operator %s", operatorID)
	}

	if !op.Active {
		zap.L().Warn("leadgen: inactive operator", zap.String("operator_id", operatorID))
		return nil, ErrPermissionDenied
	}
	if !op.Role.CanGenerateLeads() {
		zap.L().Warn("leadgen: role not allowed",
			zap.String("operator_id", operatorID),
			zap.String("role", string(op.Role)),
		)
		return nil, ErrPermissionDenied
	}

	return op, nil
}
