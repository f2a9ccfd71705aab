package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/gikenye/givecaesar/internal/utils"
	"github.com/gikenye/givecaesar/internal/wallet"
)

const keystoreUsage = `Usage: caesar keystore <command> [flags]

Commands:
  init     create a keystore from a new or imported mnemonic
  show     print the address of the existing keystore
`

func runKeystore(args []string) error {
	if len(args) == 0 {
		fmt.Print(keystoreUsage)
		return errors.New("missing keystore command")
	}

	switch args[0] {
	case "init":
		return keystoreInit(args[1:])
	case "show":
		return keystoreShow(args[1:])
	default:
		fmt.Print(keystoreUsage)
		return fmt.Errorf("unknown keystore command %q", args[0])
	}
}

func defaultKeystoreFile() string {
	if path := os.Getenv("CAESAR_KEYSTORE"); path != "" {
		return path
	}
	return wallet.DefaultKeystorePath()
}

func keystoreInit(args []string) error {
	flags := flag.NewFlagSet("keystore init", flag.ContinueOnError)
	path := flags.String("path", defaultKeystoreFile(), "keystore file")
	importPhrase := flags.Bool("import", false, "import an existing mnemonic instead of generating one")
	thor := flags.Bool("thor", false, "derive the VeChain account (m/44'/818'/0'/0/0)")
	force := flags.Bool("force", false, "overwrite an existing keystore")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("keystore %s already exists; use -force to replace it", *path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	derivation := wallet.EVMPath
	if *thor {
		derivation = wallet.ThorPath
	}

	var mnemonic string
	if *importPhrase {
		phrase, err := readSecret("Mnemonic: ")
		if err != nil {
			return err
		}
		words := utils.SplitMnemonic(phrase)
		if bad := utils.UnknownMnemonicWords(words); len(bad) > 0 {
			return fmt.Errorf("unknown words at positions %v", bad)
		}
		mnemonic = strings.Join(words, " ")
	} else {
		generated, err := wallet.NewMnemonic()
		if err != nil {
			return err
		}
		mnemonic = generated
	}
	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		return err
	}

	password, err := readNewPassword()
	if err != nil {
		return err
	}

	keystore, err := wallet.NewKeystore(mnemonic, derivation, password)
	if err != nil {
		return err
	}
	if err := keystore.Save(*path); err != nil {
		return fmt.Errorf("save keystore: %w", err)
	}

	if !*importPhrase {
		fmt.Println("\nWrite down your recovery phrase and keep it offline:")
		fmt.Printf("\n  %s\n\n", mnemonic)
	}
	fmt.Printf("Keystore saved to %s\n", *path)
	fmt.Printf("Address: %s\n", keystore.Address.Hex())
	return nil
}

func keystoreShow(args []string) error {
	flags := flag.NewFlagSet("keystore show", flag.ContinueOnError)
	path := flags.String("path", defaultKeystoreFile(), "keystore file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	keystore, err := wallet.LoadKeystore(*path)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  created %s\n", keystore.Address.Hex(), keystore.Path, keystore.CreatedAt.Format("2006-01-02"))
	return nil
}

func readNewPassword() (string, error) {
	password, err := readSecret("Keystore password: ")
	if err != nil {
		return "", err
	}
	strength, issues := utils.CheckKeystorePassword(password)
	if strength == utils.PasswordWeak {
		return "", fmt.Errorf("password too weak: %s", strings.Join(issues, "; "))
	}
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "warning: %s\n", issue)
	}

	confirm, err := readSecret("Confirm password: ")
	if err != nil {
		return "", err
	}
	if confirm != password {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

var stdin = bufio.NewReader(os.Stdin)

// readSecret reads a line without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
