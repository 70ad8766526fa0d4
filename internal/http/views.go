package http

import "fmt"

// View is one screen of the dashboard. The set is closed: every View is
// listed in Views and handled by the switch in handleView.
type View int

const (
	AddExpense View = iota
	ViewExpenses
	ManageCategories
	Analytics
	Settings
	Logout
)

// Views lists every view in navigation order.
var Views = []View{AddExpense, ViewExpenses, ManageCategories, Analytics, Settings, Logout}

// DefaultView is shown after login.
const DefaultView = AddExpense

var viewSlugs = map[View]string{
	AddExpense:       "add-expense",
	ViewExpenses:     "expenses",
	ManageCategories: "categories",
	Analytics:        "analytics",
	Settings:         "settings",
	Logout:           "logout",
}

var viewTitles = map[View]string{
	AddExpense:       "Add Expense",
	ViewExpenses:     "View Expenses",
	ManageCategories: "Manage Categories",
	Analytics:        "Analytics",
	Settings:         "Settings",
	Logout:           "Logout",
}

// ParseView maps a URL segment to a View.
func ParseView(s string) (View, error) {
	for v, slug := range viewSlugs {
		if slug == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown view %q", s)
}

// Slug is the URL segment for v.
func (v View) Slug() string { return viewSlugs[v] }

func (v View) Title() string { return viewTitles[v] }

// Path is the URL that renders v.
func (v View) Path() string { return "/view/" + v.Slug() }

func (v View) String() string { return v.Slug() }
