// Package validator builds request validation from small Rule values.
//
// Each rule pairs a Check with a ValidationError carrying a translation key,
// and Apply collects every failure into ValidationErrors:
//
//	err := validator.Apply(
//	    validator.Required("name", in.Name),
//	    validator.ValidCPFOrCNPJ("cpf_cnpj", in.CpfCnpj),
//	)
//
// Brazilian taxpayer numbers are checked with their modulo 11 check digits
// and phone numbers must include the area code.
package validator
