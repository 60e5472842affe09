package rag

import "fmt"

// supportEmail is the fallback contact channel named in grounded answers
// when the retrieved context does not cover the question.
const supportEmail = "support@technova.se"

// msgNeedQuestion is returned, without any external call, when the
// conversation contains no non-empty user question.
const msgNeedQuestion = "Jag behöver en fråga för att kunna hjälpa till."

// domainPrompt asks the model for a bare JA/NEJ verdict on whether the
// question concerns TechNova's products, deliveries, warranties or the
// FAQ/policy content.
func domainPrompt(question string) string {
	return fmt.Sprintf(`Svara endast JA eller NEJ.
Gäller användarens fråga TechNova AB:s produkter, leveranser, garantier, eller info i företagets FAQ/policydokument?

Fråga: %s`, question)
}

// refusalPrompt produces an apologetic, scope-explaining message for
// out-of-domain questions.
func refusalPrompt(question string) string {
	return fmt.Sprintf(`Du svarar bara på frågor om TechNova AB, dess produkter, leveranser, garantier eller FAQ/policy.
Om något ligger utanför detta: svara vänligt på svenska att du inte kan hjälpa med den typen av fråga och föreslå vad du kan svara på.

Fråga: %s`, question)
}

// qaPrompt instructs the model to answer concisely in Swedish, strictly
// from the supplied context, with footnote markers [1], [2], ... matching
// the numbered context blocks.
func qaPrompt(question, context string) string {
	return fmt.Sprintf(`Du är TechNova AB:s kundsupportassistent. Svara KORT, sakligt och på svenska.
Använd endast information från KONTEKST. Om du använder dokumenten, lista fotnoter [1], [2], ... och ange sektion & rubrik (t.ex. "§4 Retur- och återbetalningspolicy – Ångerrätt").
Om svaret inte finns i kontexten, säg att du inte hittar det i FAQ/policy och hänvisa till supportmail (%s).

KONTEKST:
%s

FRÅGA:
%s`, supportEmail, context, question)
}
