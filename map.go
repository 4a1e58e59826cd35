package parallel

import "context"

// Map applies fn to every item with For and returns the results in input order.
// Results of items whose partition faulted are left as the zero value; the
// error contract is that of For.
func Map[T, R any](
	ctx context.Context,
	d *Dispatcher,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	switch {
	case d == nil:
		return nil, nilArgument("dispatcher")
	case fn == nil:
		return nil, nilArgument("fn")
	}

	results := make([]R, len(items))
	err := d.For(ctx, 0, len(items), func(ctx context.Context, i int) error {
		r, err := fn(ctx, items[i])
		if err != nil {
			return err
		}
		results[i] = r
		return nil
	})
	return results, err
}
