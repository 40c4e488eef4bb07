package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/client/captcha"
	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/client/policy"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login shows a CAPTCHA, prompts for credentials and the CAPTCHA answer, and
// submits them. If the CAPTCHA cannot be loaded the credentials are still
// sent and the server decides; a failed attempt always brings a new CAPTCHA,
// which is shown before the error is returned.
func (a *App) Login(ctx context.Context) error {
	ch, err := a.authService.PrepareLogin(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "CAPTCHA unavailable:", err)
	} else {
		a.showCaptcha(ctx, ch)
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}

	var answer string
	if ch != nil {
		if answer, err = getSimpleText(a.reader, "Enter the CAPTCHA text", a.out); err != nil {
			return err
		}
	}

	res, err := a.authService.Login(ctx, models.LoginForm{Email: email, Password: password, CaptchaAnswer: answer})
	if err != nil {
		if next := a.authService.CurrentCaptcha(); next != nil && (ch == nil || next.ID != ch.ID) {
			fmt.Fprintln(a.out, "A new CAPTCHA was issued for your next attempt.")
			a.showCaptcha(ctx, next)
		}
		return err
	}

	fmt.Fprintln(a.out, res.Message)
	return nil
}

// Signup prompts for the account fields, prints the password rule checklist
// and submits the registration. A password that misses any rule is rejected
// locally.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Choose a password", a.out)
	if err != nil {
		return err
	}

	form := models.SignupForm{Email: email, Username: username, Password: password}
	a.printRules(form.Policy())

	res, err := a.authService.Register(ctx, form)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, res.Message)
	if res.User != nil && res.User.Username != "" {
		fmt.Fprintf(a.out, "Account %q created. You can log in now.\n", res.User.Username)
	} else {
		fmt.Fprintln(a.out, "You can log in now.")
	}
	return nil
}

// Captcha discards the current CAPTCHA and shows a new one.
func (a *App) Captcha(ctx context.Context) error {
	ch, err := a.authService.RefreshCaptcha(ctx)
	if err != nil {
		return err
	}
	a.showCaptcha(ctx, ch)
	return nil
}

// CheckPassword evaluates a password against the signup policy without
// sending anything.
func (a *App) CheckPassword(ctx context.Context) error {
	password, err := getPassword(a.reader, "Password to check", a.out)
	if err != nil {
		return err
	}

	r := policy.Evaluate(password)
	a.printRules(r)
	if r.Admissible() {
		fmt.Fprintln(a.out, "Password meets all requirements.")
	} else {
		fmt.Fprintln(a.out, "Password does not meet the requirements.")
	}
	return nil
}

// Whoami is the signed-in view: who the session belongs to and when the
// token expires, if it says.
func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	fmt.Fprintln(a.out, "Logged in as", a.session.DisplayName())
	if u := a.session.User(); u != nil && u.Email != "" {
		fmt.Fprintln(a.out, "Email:", u.Email)
	}
	if c := a.session.Claims(); c != nil && !c.ExpiresAt.IsZero() {
		fmt.Fprintln(a.out, "Session expires:", c.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

// Logout forgets the session token and returns to the guest view.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) showCaptcha(ctx context.Context, ch *captcha.Challenge) {
	path, err := ch.Image.WriteFile(a.config.CaptchaDir, ch.ID)
	if err != nil {
		a.log.Warn(ctx, "cannot save captcha image", "error", err)
		fmt.Fprintln(a.out, "Could not save the CAPTCHA image:", err)
		return
	}
	fmt.Fprintln(a.out, "CAPTCHA image:", path)
}

func (a *App) printRules(r policy.Result) {
	for _, rule := range r.Rules() {
		mark := "✗"
		if rule.Passed {
			mark = "✓"
		}
		fmt.Fprintf(a.out, "  %s %s\n", mark, rule.Label)
	}
}
