package usecase

import "regexp"

// 厳密なRFC検証はしない。形だけ見る
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
