package impl

import (
	"strconv"

	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/runtime"
)

// LocatorImpl is a lazy query for elements of a page. Nothing is resolved
// until an action runs.
type LocatorImpl struct {
	Page     *PageImpl
	Selector string
}

// Click clicks the first match.
//
//syncgen:default timeout=30000
func (o *LocatorImpl) Click(timeout *float64) runtime.Coroutine[runtime.Void] {
	return func(l *runtime.Loop) *runtime.Future[runtime.Void] {
		reply := withTimeout(l, o.Page.send("click", o.params()), timeout, "click "+o.Selector)
		return runtime.Map(reply, func(map[string]any) (runtime.Void, error) {
			return runtime.Void{}, nil
		})
	}
}

// Count resolves with the number of matches.
func (o *LocatorImpl) Count() runtime.Coroutine[int] {
	return func(l *runtime.Loop) *runtime.Future[int] {
		return runtime.Map(o.Page.send("count", o.params()), func(r map[string]any) (int, error) {
			return num(r["value"]), nil
		})
	}
}

// TextContent resolves with the text of the first match, or nil.
func (o *LocatorImpl) TextContent() runtime.Coroutine[*string] {
	return func(l *runtime.Loop) *runtime.Future[*string] {
		return runtime.Map(o.Page.send("textContent", o.params()), func(r map[string]any) (*string, error) {
			text, ok := r["value"].(string)
			if !ok {
				return nil, nil
			}
			return &text, nil
		})
	}
}

// All resolves with one locator per current match.
func (o *LocatorImpl) All() runtime.Coroutine[[]*LocatorImpl] {
	return func(l *runtime.Loop) *runtime.Future[[]*LocatorImpl] {
		return runtime.Chain(o.Count()(l), func(n int) *runtime.Future[[]*LocatorImpl] {
			all := make([]*LocatorImpl, n)
			for i := range all {
				all[i] = o.Nth(i)
			}
			return runtime.Resolved(l, all)
		})
	}
}

// First narrows to the first match.
func (o *LocatorImpl) First() *LocatorImpl {
	return o.Nth(0)
}

// Nth narrows to the match at index. It backs the indexing operator.
func (o *LocatorImpl) Nth(index int) *LocatorImpl {
	return &LocatorImpl{Page: o.Page, Selector: o.Selector + " >> nth=" + strconv.Itoa(index)}
}

// Filter narrows to matches containing hasText.
func (o *LocatorImpl) Filter(hasText string) (*LocatorImpl, error) {
	if hasText == "" {
		return nil, errors.New("filter needs a non-empty text")
	}
	return &LocatorImpl{Page: o.Page, Selector: o.Selector + " >> has-text=" + hasText}, nil
}

func (o *LocatorImpl) params() map[string]any {
	return map[string]any{"selector": o.Selector}
}
