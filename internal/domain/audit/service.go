package audit

import "context"

// Service is the standalone entry point to the audit log. Domain operations append their
// own entries inside their commit; this service covers manual notes and reads.
type Service interface {
	// Append records one entry in its own commit.
	Append(ctx context.Context, actor Actor, action Action, detail string) (Entry, error)

	// List returns entries matching filter, oldest first.
	List(ctx context.Context, filter Filter) (ListResponse, error)

	// Subscribe streams entries committed after the call until cleanup is invoked.
	Subscribe() (<-chan Entry, func())
}
