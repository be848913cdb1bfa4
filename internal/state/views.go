package state

import "sync"

// View names the page currently shown
type View string

const (
	ViewLanding      View = "landing"
	ViewLogin        View = "login"
	ViewRegister     View = "register"
	ViewDashboard    View = "dashboard"
	ViewTransactions View = "transactions"
	ViewBudgets      View = "budgets"
	ViewAnalytics    View = "analytics"
	ViewCategories   View = "categories"
	ViewCurrencies   View = "currencies"
	ViewSettings     View = "settings"
)

// IsAuthView reports whether v is one of the credential views
func (v View) IsAuthView() bool {
	return v == ViewLogin || v == ViewRegister
}

// IsPublic reports whether v can be shown without a session
func (v View) IsPublic() bool {
	return v == ViewLanding || v.IsAuthView()
}

// Navigator tracks the current view
type Navigator struct {
	mu      sync.RWMutex
	current View
	subs    subscribers[View]
}

func NewNavigator(initial View) *Navigator {
	return &Navigator{current: initial}
}

func (n *Navigator) Current() View {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Navigate switches to v and notifies subscribers when the view changes
func (n *Navigator) Navigate(v View) {
	n.mu.Lock()
	changed := n.current != v
	n.current = v
	n.mu.Unlock()

	if changed {
		n.subs.notify(v)
	}
}

// Guard redirects protected views to login when there is no session and
// returns the view that ends up current
func (n *Navigator) Guard(target View, session *SessionStore) View {
	if !target.IsPublic() && !session.IsAuthenticated() {
		target = ViewLogin
	}
	n.Navigate(target)
	return target
}

func (n *Navigator) Subscribe(fn func(View)) (unsubscribe func()) {
	return n.subs.add(fn)
}
