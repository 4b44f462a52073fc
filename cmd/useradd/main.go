// Command useradd creates a dashboard user or resets an existing user's
// password in the application database.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/username/settlementdash/backend/src/config"
	"github.com/username/settlementdash/backend/src/database"
	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/model"
)

func main() {
	config.LoadConfig()
	dbPath := flag.String("db", config.Cfg.DatabasePath, "path to the application sqlite database")
	username := flag.String("username", "", "user to create or update")
	passwordEnv := flag.String("password-env", "", "read the password from this environment variable instead of stdin")
	flag.Parse()

	logger.InitLogger(config.Cfg.LogLevel)

	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(os.Stderr, "usage: useradd -username NAME [-db PATH] [-password-env VAR]")
		os.Exit(2)
	}

	password, err := readPassword(*passwordEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	database.InitDB(*dbPath)
	defer database.DB.Close()

	user, err := model.NewUserStore(database.DB).CreateOrUpdateUser(context.Background(), *username, password)
	if err != nil {
		logger.L.Error("Failed to store user", "username", *username, "error", err)
		os.Exit(1)
	}
	logger.L.Info("User stored", "username", user.Username, "id", user.ID)
}

func readPassword(envVar string) (string, error) {
	if envVar != "" {
		v := os.Getenv(envVar)
		if v == "" {
			return "", fmt.Errorf("environment variable %s is empty", envVar)
		}
		return v, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
