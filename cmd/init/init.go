package init

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
)

const fileName = ".fmtrc.toml"

// We embed the sample toml file for use with the init flag.
//
//go:embed init.toml
var initBytes []byte

func Run(out io.Writer) error {
	// O_EXCL so we never clobber an existing config
	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s already exists", fileName)
	} else if err != nil {
		return fmt.Errorf("failed to create %s: %w", fileName, err)
	}

	if _, err = f.Write(initBytes); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to write %s: %w", fileName, err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", fileName, err)
	}

	_, _ = fmt.Fprintf(out, "Generated %s. Now it's your turn to edit it.\n", fileName)

	return nil
}
