//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Origin identifies which extraction strategy produced a passcode
// ENUM(text,html_text,href_param,href_digits,subject,attribute,meta_refresh,none)
type Origin string
