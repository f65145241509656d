// This file contains the logic for parsing HCL type expressions (e.g., `string`,
// `list(number)`) into their corresponding cty.Type objects.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToCtyType converts an HCL type expression into its cty.Type
// equivalent. A missing expression means `any`.
func typeExprToCtyType(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	logger := ctxlog.FromContext(ctx)

	if !isExprDefined(ctx, expr, "type") {
		logger.Debug("Type expression is absent, defaulting to any.")
		return cty.DynamicPseudoType, nil
	}

	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.DynamicPseudoType, fmt.Errorf("invalid type expression at %s: %w", expr.Range(), diags)
	}
	if ty.IsCollectionType() && ty.ElementType() == cty.DynamicPseudoType {
		return cty.DynamicPseudoType, fmt.Errorf("invalid type expression at %s: collection types cannot contain type 'any'", expr.Range())
	}

	logger.Debug("Parsed type expression.", "type", ty.FriendlyName())
	return ty, nil
}
