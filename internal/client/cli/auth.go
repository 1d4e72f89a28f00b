package cli

import (
	"context"
	"errors"
)

var errNotLoggedIn = errors.New("not logged in, use 'login' first")

func (a *App) Login(ctx context.Context) error {
	token, err := GetSecret(a.out, "Session token")
	if err != nil {
		return err
	}
	owner, err := a.settings.SignIn(ctx, token)
	if err != nil {
		return err
	}
	a.owner = owner
	a.printf("Signed in as %s", owner)
	a.afterSignIn(ctx)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.settings.SignOut(ctx); err != nil {
		return err
	}
	a.owner = ""
	a.undo = nil
	a.printf("Signed out.")
	return nil
}

// SetAPIKey stores the AI credential; "apikey clear" removes it.
func (a *App) SetAPIKey(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "clear" {
		if err := a.settings.ClearAPIKey(ctx); err != nil {
			return err
		}
		a.printf("API key cleared.")
		return nil
	}
	key, err := GetSecret(a.out, "API key")
	if err != nil {
		return err
	}
	if err := a.settings.SetAPIKey(ctx, key); err != nil {
		return err
	}
	if key == "" {
		a.printf("API key cleared.")
	} else {
		a.printf("API key saved.")
	}
	return nil
}

func (a *App) requireOwner() error {
	if a.owner == "" {
		return errNotLoggedIn
	}
	return nil
}
