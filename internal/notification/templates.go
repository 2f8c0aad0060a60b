package notification

import "fmt"

const productName = "Snware Project"

// PasswordResetMessage renders the temporary-password email.
func PasswordResetMessage(name, tempPassword string) (subject, body string) {
	subject = "Password Reset - " + productName
	body = fmt.Sprintf(`Hello %s,

Here is your temporary password: %s

Please log in and change your password as soon as possible.

Regards,
%s Team`, name, tempPassword, productName)
	return subject, body
}
