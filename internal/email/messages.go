package email

import "fmt"

type message struct {
	subject string
	text    string
	html    string
}

const (
	welcomeSubject  = "Welcome to Wedge Matrix"
	deletionSubject = "Your Wedge Matrix Account Has Been Deleted"
)

func welcomeMessage(toEmail string) message {
	return message{
		subject: welcomeSubject,
		text: fmt.Sprintf(
			"Hi %s,\n\nThanks for signing up for Wedge Matrix. A default matrix with LW, SW, GW and PW is ready for your yardages.\n",
			toEmail,
		),
		html: fmt.Sprintf(`<html>
<body>
  <h2>Welcome to Wedge Matrix</h2>
  <p>Hi %s,</p>
  <p>Thanks for signing up. A default matrix with LW, SW, GW and PW is ready for your yardages.</p>
</body>
</html>`, toEmail),
	}
}

func accountDeletionMessage(toEmail string) message {
	return message{
		subject: deletionSubject,
		text: fmt.Sprintf(
			"Hi %s,\n\nYour Wedge Matrix account and all of its matrices have been deleted.\n",
			toEmail,
		),
		html: fmt.Sprintf(`<html>
<body>
  <h2>Account deleted</h2>
  <p>Hi %s,</p>
  <p>Your Wedge Matrix account and all of its matrices have been deleted.</p>
</body>
</html>`, toEmail),
	}
}
