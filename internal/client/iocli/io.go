// Package iocli абстрагирует терминальный ввод-вывод клиента, чтобы
// команды можно было тестировать со сценарным вводом.
package iocli

// IO — поверхность взаимодействия команд с пользователем.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
