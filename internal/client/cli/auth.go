package cli

import (
	"fmt"
)

type registerCmd struct {
	app *App

	Email    string `short:"e" long:"email" description:"e-mail address"`
	Username string `short:"u" long:"username" description:"user name"`
}

func (c *registerCmd) Execute(_ []string) error {
	email, err := c.app.ask(c.Email, "E-mail")
	if err != nil {
		return err
	}
	username, err := c.app.ask(c.Username, "Username")
	if err != nil {
		return err
	}
	password, err := GetNewPassword("Password", c.app.out)
	if err != nil {
		return err
	}

	api, err := c.app.client()
	if err != nil {
		return err
	}
	ctx, cancel, err := c.app.callContext()
	if err != nil {
		return err
	}
	defer cancel()

	id, err := api.Register(ctx, username, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.app.out, id)
	return nil
}

type loginCmd struct {
	app *App

	Email   string `short:"e" long:"email" description:"e-mail address"`
	Service string `long:"service" default:"keuthlie" description:"service to obtain a token for"`
	NoSave  bool   `long:"no-save" description:"do not remember the token"`
}

func (c *loginCmd) Execute(_ []string) error {
	email, err := c.app.ask(c.Email, "E-mail")
	if err != nil {
		return err
	}
	password, err := getPassword("Password", c.app.out)
	if err != nil {
		return err
	}

	api, err := c.app.client()
	if err != nil {
		return err
	}
	ctx, cancel, err := c.app.callContext()
	if err != nil {
		return err
	}
	defer cancel()

	s, err := api.Login(ctx, email, password, c.Service)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.app.out, s.Token)
	if c.NoSave {
		return nil
	}
	if err := c.app.saveSession(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// tokenArg falls back to the saved session when omitted.
type tokenArg struct {
	Token string `positional-arg-name:"token"`
}

type verifyCmd struct {
	app *App

	Args tokenArg `positional-args:"yes"`
}

func (c *verifyCmd) Execute(_ []string) error {
	api, err := c.app.client()
	if err != nil {
		return err
	}
	token, err := c.app.token(c.Args.Token)
	if err != nil {
		return err
	}
	ctx, cancel, err := c.app.callContext()
	if err != nil {
		return err
	}
	defer cancel()

	id, err := api.VerifyToken(ctx, token)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.app.out, id)
	return nil
}

type passwdCmd struct {
	app *App

	Args tokenArg `positional-args:"yes"`
}

func (c *passwdCmd) Execute(_ []string) error {
	if _, err := c.app.config(); err != nil {
		return err
	}
	token, err := c.app.token(c.Args.Token)
	if err != nil {
		return err
	}
	current, err := getPassword("Current password", c.app.out)
	if err != nil {
		return err
	}
	next, err := GetNewPassword("New password", c.app.out)
	if err != nil {
		return err
	}

	api, err := c.app.client()
	if err != nil {
		return err
	}
	ctx, cancel, err := c.app.callContext()
	if err != nil {
		return err
	}
	defer cancel()

	s, err := api.ChangePassword(ctx, token, current, next)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.app.out, s.Token)
	if c.Args.Token != "" {
		return nil
	}
	if err := c.app.saveSession(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

type revokeCmd struct {
	app *App

	Args tokenArg `positional-args:"yes"`
}

func (c *revokeCmd) Execute(_ []string) error {
	api, err := c.app.client()
	if err != nil {
		return err
	}
	token, err := c.app.token(c.Args.Token)
	if err != nil {
		return err
	}
	ctx, cancel, err := c.app.callContext()
	if err != nil {
		return err
	}
	defer cancel()

	id, err := api.RevokeAll(ctx, token)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.app.out, "revoked all tokens of %s\n", id)
	if c.Args.Token != "" {
		return nil
	}
	return c.app.forgetSession()
}

type logoutCmd struct {
	app *App
}

func (c *logoutCmd) Execute(_ []string) error {
	if _, err := c.app.config(); err != nil {
		return err
	}
	return c.app.forgetSession()
}
