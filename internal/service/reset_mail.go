package service

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer sends one-time reset codes over SMTP. Satisfies Notifier.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer() *Mailer {
	return &Mailer{
		host:     viper.GetString("mail.host"),
		port:     viper.GetInt("mail.port"),
		username: viper.GetString("mail.username"),
		password: viper.GetString("mail.password"),
		from:     viper.GetString("mail.from"),
	}
}

func (s *Mailer) SendCode(sendTo, code string) error {
	if sendTo == s.from {
		return errors.New("invalid email address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", sendTo)
	m.SetHeader("Subject", "Your password reset code")
	m.SetBody("text/html", fmt.Sprintf(
		"Your verification code is <b>%s</b>.<br><br>It expires in 5 minutes. If you didn't request a password reset, you can ignore this mail.",
		code,
	))

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)

	if err := d.DialAndSend(m); err != nil {
		return err
	}

	return nil
}
