package cli

import (
	"context"
	"fmt"
)

// Register регистрирует нового пользователя и сразу выполняет вход
func (a *App) Register(ctx context.Context) error {
	username, password, err := a.readCredentials(true)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, username, password); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	a.io.Printf("Registered and logged in as %s\n", username)
	return nil
}

// Login выполняет вход и сохраняет токены локально
func (a *App) Login(ctx context.Context) error {
	username, password, err := a.readCredentials(false)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, username, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	a.io.Printf("Logged in as %s\n", username)
	return nil
}

// Logout удаляет локальные учётные данные
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	a.io.Println("Logged out")
	return nil
}

// Status показывает состояние сессии и очереди
func (a *App) Status(ctx context.Context) error {
	authed, err := a.auth.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("check authentication: %w", err)
	}

	if authed {
		a.io.Println("Session:  active")
	} else {
		a.io.Println("Session:  not logged in")
	}

	pending, err := a.queue.Len(ctx)
	if err != nil {
		return fmt.Errorf("check queue: %w", err)
	}
	a.io.Printf("Pending:  %d operation(s)\n", pending)

	return nil
}

// readCredentials запрашивает имя и пароль; при регистрации пароль
// подтверждается повторным вводом.
func (a *App) readCredentials(confirm bool) (string, string, error) {
	username, err := a.io.ReadInput("Username: ")
	if err != nil {
		return "", "", fmt.Errorf("read username: %w", err)
	}

	password, err := a.io.ReadPassword("Password: ")
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}

	if confirm {
		repeat, err := a.io.ReadPassword("Repeat password: ")
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		if repeat != password {
			return "", "", fmt.Errorf("passwords do not match")
		}
	}

	return username, password, nil
}
