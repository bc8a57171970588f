package accounts

import (
	"context"

	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
)

type accountLookup func(ctx context.Context, id string) (Account, error)

type childLookup func(ctx context.Context, parentID string) ([]Account, error)

// walkAncestors follows parent pointers from start to the root, nearest first.
// Every hop is checked against a visited set so corrupted data cannot loop forever.
func walkAncestors(ctx context.Context, start Account, get accountLookup) ([]Account, error) {
	visited := map[string]struct{}{start.ID: {}}
	var chain []Account
	current := start
	for current.ParentID != nil {
		parentID := *current.ParentID
		if _, seen := visited[parentID]; seen {
			return nil, &ledgererrs.CycleDetectedError{AccountID: parentID}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parent, err := get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		visited[parentID] = struct{}{}
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}

// walkDescendants returns every account below rootID in breadth-first order.
func walkDescendants(ctx context.Context, rootID string, children childLookup) ([]Account, error) {
	visited := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	var out []Account
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kids, err := children(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, kid := range kids {
			if _, seen := visited[kid.ID]; seen {
				return nil, &ledgererrs.CycleDetectedError{AccountID: kid.ID}
			}
			visited[kid.ID] = struct{}{}
			out = append(out, kid)
			queue = append(queue, kid.ID)
		}
	}
	return out, nil
}
