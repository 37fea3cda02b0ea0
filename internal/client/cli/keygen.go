package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/keuthlie/internal/filex"
	"github.com/dmitrijs2005/keuthlie/internal/server/keys"
)

type keygenCmd struct {
	app *App

	Bits  int    `short:"b" long:"bits" default:"4096" description:"RSA modulus size"`
	Out   string `short:"o" long:"out" default:"certs" description:"output directory"`
	Force bool   `short:"f" long:"force" description:"overwrite existing files"`
}

// Execute writes key.pem (private, 0600) and cert.pem (public) into Out,
// the locations the server reads by default.
func (c *keygenCmd) Execute(_ []string) error {
	if c.Bits < 2048 {
		return fmt.Errorf("refusing to generate a %d-bit key, use at least 2048", c.Bits)
	}

	privPath := filepath.Join(c.Out, "key.pem")
	pubPath := filepath.Join(c.Out, "cert.pem")
	if !c.Force {
		if p, ok := filex.Exists(privPath, pubPath); ok {
			return fmt.Errorf("%s exists, use --force to overwrite", p)
		}
	}

	priv, pub, err := keys.Generate(c.Bits)
	if err != nil {
		return err
	}

	if _, err := filex.EnsureDir(c.Out, 0o700); err != nil {
		return err
	}
	if err := filex.WriteNew(privPath, priv, 0o600, c.Force); err != nil {
		return err
	}
	if err := filex.WriteNew(pubPath, pub, 0o644, c.Force); err != nil {
		return err
	}

	fmt.Fprintf(c.app.out, "wrote %s and %s\n", privPath, pubPath)
	return nil
}
