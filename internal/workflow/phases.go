package workflow

import (
	"time"

	"github.com/spec-kit/provisioning-service/internal/browser"
)

// Phase names one stage of the workflow.
type Phase string

const (
	PhaseAuthenticate   Phase = "authenticate"
	PhaseCreateUser     Phase = "create_user"
	PhaseCreateEmployee Phase = "create_employee"
)

// The upstream UI exposes no readiness signal; these pauses give it time to
// apply the previous action and must not be shortened.
const (
	loginSettle       = 10 * time.Second
	beforeUserList    = 5 * time.Second
	userListLoad      = 5 * time.Second
	userFormLoad      = 5 * time.Second
	bodyshopTyped     = 1 * time.Second
	bodyshopApplied   = 9500 * time.Millisecond
	customRoleApplied = 5 * time.Second
	userSubmitted     = 8 * time.Second
	beforeEmployee    = 12 * time.Second
	employeeFormLoad  = 5 * time.Second
	bodyshopListOpen  = 1500 * time.Millisecond
	employeeSubmitted = 8 * time.Second
)

// Accessible names on the upstream UI. The leading rune of the link and
// button names is the icon-font glyph the upstream renders before the label.
const (
	userManagementMenu = "User Management List of Users"
	listOfUsersLink    = "\uf0c0 List of Users"
	createButtonName   = "\uf00c Create"
	fixedUserRole      = "owner"
	fixedPayType       = "2"
	enterKey           = "Enter"
)

type phase struct {
	name  Phase
	enter State
	done  State
	run   func(d *driver, in Input)
}

func (e *Engine) phases() []phase {
	return []phase{
		{name: PhaseAuthenticate, enter: StateAuthenticating, done: StateMSOSwitched, run: e.authenticate},
		{name: PhaseCreateUser, enter: StateUserCreating, done: StateUserCreated, run: e.createUser},
		{name: PhaseCreateEmployee, enter: StateEmployeeCreating, done: StateEmployeeCreated, run: e.createEmployee},
	}
}

// authenticate signs in with the operator account and switches into the MSO.
func (e *Engine) authenticate(d *driver, _ Input) {
	d.navigate(e.cfg.LoginURL)
	d.fill(browser.Placeholder("User Email"), e.cfg.LoginEmail)
	d.fill(browser.Placeholder("Password"), e.cfg.LoginPassword)
	d.click(browser.Role("button", "Login"))
	d.wait(loginSettle)

	d.click(browser.CSS("li").WithText(e.cfg.MSOEntryText).Within(browser.Role("link", "")).Nth(1))
	d.click(browser.Role("link", e.cfg.MSOLinkName))
	d.expect(MarkerMSOChanged)
}

// createUser fills the user form. Email goes into both the contact email and
// the app username; the role select is always "owner".
func (e *Engine) createUser(d *driver, in Input) {
	u := in.User
	d.wait(beforeUserList)
	d.click(browser.Text(userManagementMenu, false))
	d.click(browser.Role("link", listOfUsersLink))
	d.wait(userListLoad)
	d.click(browser.Role("link", "+ Create"))
	d.wait(userFormLoad)

	d.fill(browser.Label("Title"), u.Title)
	d.fill(browser.Label("First Name"), u.FirstName)
	d.fill(browser.Label("Last Name"), u.LastName)
	d.fill(browser.Role("textbox", "Email *"), u.Email)
	d.fill(browser.Label("App Username"), u.Email)
	d.fill(browser.Label("New Password"), u.Password)
	d.fill(browser.Label("Password Repeat"), u.Password)
	d.selectOption(browser.ExactLabel("Role"), fixedUserRole)

	search := browser.Label("Search")
	d.click(search)
	d.fill(search, u.MainBodyshop)
	d.wait(bodyshopTyped)
	d.press(search, enterKey)
	d.wait(bodyshopApplied)

	d.selectOption(browser.Label("Custom Role"), in.CustomRoleID)
	d.wait(customRoleApplied)

	d.click(browser.Role("button", createButtonName))
	d.wait(userSubmitted)
	d.expect(MarkerUserCreated)
}

// createEmployee fills the employee form. Position is typed free text
// confirmed with Enter, and every bodyshop is granted via "Select all".
func (e *Engine) createEmployee(d *driver, in Input) {
	emp := in.Employee
	d.wait(beforeEmployee)
	d.navigate(e.cfg.EmployeeCreateURL)
	d.wait(employeeFormLoad)

	d.fill(browser.ExactLabel("Code"), emp.EmployeeID)
	d.fill(browser.Label("First Name"), emp.FirstName)
	d.fill(browser.Label("Last Name"), emp.LastName)
	d.fill(browser.Label("Email"), emp.Email)

	position := browser.Placeholder("Select Position")
	d.click(position)
	d.fill(position, emp.Position)
	d.press(position, enterKey)

	d.selectOption(browser.Label("Pay Type"), fixedPayType)
	d.fill(browser.ExactLabel("Password"), emp.Password)
	d.fill(browser.Label("Repeat Password"), emp.Password)

	d.click(browser.Role("textbox", "Select Main Bodyshop"))
	search := browser.CSS(`input[type="search"]`)
	d.fill(search, emp.MainBodyshop)
	d.press(search, enterKey)

	d.click(browser.Placeholder("Select Bodyshops"))
	d.wait(bodyshopListOpen)
	d.click(browser.Text("Select all", true))

	d.click(browser.Role("button", createButtonName))
	d.wait(employeeSubmitted)
	d.expect(MarkerEmployeeCreated)
}
