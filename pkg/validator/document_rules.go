package validator

func digits(s string) []int {
	out := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, int(r-'0'))
		}
	}
	return out
}

func allSame(d []int) bool {
	for _, v := range d[1:] {
		if v != d[0] {
			return false
		}
	}
	return true
}

// IsCPF validates the two check digits of an individual taxpayer number.
// Punctuation is ignored.
func IsCPF(s string) bool {
	d := digits(s)
	if len(d) != 11 || allSame(d) {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += d[i] * (n + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if check != d[n] {
			return false
		}
	}
	return true
}

var cnpjWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// IsCNPJ validates the two check digits of a company taxpayer number.
func IsCNPJ(s string) bool {
	d := digits(s)
	if len(d) != 14 || allSame(d) {
		return false
	}
	for _, n := range []int{12, 13} {
		weights := cnpjWeights[13-n:]
		sum := 0
		for i := 0; i < n; i++ {
			sum += d[i] * weights[i]
		}
		check := sum % 11
		if check < 2 {
			check = 0
		} else {
			check = 11 - check
		}
		if check != d[n] {
			return false
		}
	}
	return true
}

// IsPhoneBR accepts a landline or mobile number with area code, with or
// without the 55 country prefix. Mobile numbers have nine digits starting
// with 9.
func IsPhoneBR(s string) bool {
	d := digits(s)
	if (len(d) == 12 || len(d) == 13) && d[0] == 5 && d[1] == 5 {
		d = d[2:]
	}
	switch len(d) {
	case 10:
		return d[0] != 0 && d[1] != 0 && d[2] >= 2 && d[2] <= 5
	case 11:
		return d[0] != 0 && d[1] != 0 && d[2] == 9
	}
	return false
}

func ValidCPFOrCNPJ(field, value string) Rule {
	return Rule{
		Check: func() bool { return IsCPF(value) || IsCNPJ(value) },
		Error: newError(field, "must be a valid CPF or CNPJ", "validation.cpf_cnpj", nil),
	}
}

func ValidPhoneBR(field, value string) Rule {
	return Rule{
		Check: func() bool { return IsPhoneBR(value) },
		Error: newError(field, "must be a valid phone number with area code", "validation.phone", nil),
	}
}
