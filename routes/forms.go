package routes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type registerForm struct {
	FullName        string `form:"full_name" binding:"required,min=2,max=100"`
	Email           string `form:"email" binding:"required,email,max=120"`
	Phone           string `form:"phone" binding:"max=20"`
	Password        string `form:"password" binding:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=Password"`
}

type donationForm struct {
	Amount        string `form:"amount" binding:"required,numeric"`
	PaymentMethod string `form:"payment_method" binding:"required,oneof=card paypal crypto bank"`
	Anonymous     bool   `form:"anonymous"`
	Message       string `form:"message" binding:"max=1000"`
}

type campaignForm struct {
	Title       string `form:"title" binding:"required,min=5,max=200"`
	Description string `form:"description" binding:"required"`
	GoalAmount  string `form:"goal_amount" binding:"required,numeric"`
	Category    string `form:"category" binding:"required,oneof=education medical disaster community environment other"`
	ImageURL    string `form:"image_url" binding:"omitempty,url,max=300"`
	EndDate     string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

type newsForm struct {
	Title    string `form:"title" binding:"required,min=5,max=200"`
	Content  string `form:"content" binding:"required"`
	ImageURL string `form:"image_url" binding:"omitempty,url,max=300"`
}

type paymentMethodForm struct {
	MethodType    string `form:"method_type" binding:"required,oneof=paypal crypto bank"`
	Name          string `form:"name" binding:"required,min=2,max=100"`
	WalletAddress string `form:"wallet_address" binding:"max=200"`
	BankName      string `form:"bank_name" binding:"max=100"`
	AccountNumber string `form:"account_number" binding:"max=50"`
	RoutingNumber string `form:"routing_number" binding:"max=20"`
	AccountHolder string `form:"account_holder" binding:"max=100"`
	PayPalEmail   string `form:"paypal_email" binding:"omitempty,email,max=120"`
}

var fieldLabels = map[string]string{
	"Email":           "Email",
	"Password":        "Password",
	"FullName":        "Full name",
	"Phone":           "Phone number",
	"ConfirmPassword": "Confirm password",
	"Amount":          "Donation amount",
	"PaymentMethod":   "Payment method",
	"Message":         "Message",
	"Title":           "Title",
	"Description":     "Description",
	"GoalAmount":      "Goal amount",
	"Category":        "Category",
	"ImageURL":        "Image URL",
	"EndDate":         "End date",
	"Content":         "Content",
	"MethodType":      "Payment type",
	"Name":            "Name",
	"WalletAddress":   "Wallet address",
	"BankName":        "Bank name",
	"AccountNumber":   "Account number",
	"RoutingNumber":   "Routing number",
	"AccountHolder":   "Account holder",
	"PayPalEmail":     "PayPal email",
}

// formErrors turns binding errors into messages fit for a form page.
func formErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Invalid form submission."}
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		label, ok := fieldLabels[fe.Field()]
		if !ok {
			label = fe.Field()
		}
		switch fe.Tag() {
		case "required":
			messages = append(messages, label+" is required.")
		case "email":
			messages = append(messages, label+" must be a valid email address.")
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters.", label, fe.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters.", label, fe.Param()))
		case "eqfield":
			messages = append(messages, "Passwords must match.")
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "numeric":
			messages = append(messages, label+" must be a number.")
		case "url":
			messages = append(messages, label+" must be a valid URL.")
		case "datetime":
			messages = append(messages, label+" must be a date (YYYY-MM-DD).")
		default:
			messages = append(messages, label+" is invalid.")
		}
	}
	return messages
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
