// Package prompt renders the fixed classification instruction around an
// email's text. Pure templating; fence stripping and JSON validation are the
// classification client's job, since models do not reliably obey the "JSON
// only" instruction.
package prompt

import (
	"fmt"
)

const classifyTemplate = `Analise o e-mail fornecido e retorne um objeto JSON.
O objetivo é classificar o e-mail como "Produtivo" ou "Improdutivo".

- "Produtivo": E-mails que requerem uma ação ou resposta específica (ex: solicitações, dúvidas, atualizações de casos).
- "Improdutivo": E-mails que não necessitam de uma ação (ex: felicitações, agradecimentos, spam).

E-mail para análise:
---
%s
---

O JSON de saída deve ter a seguinte estrutura em inglês:
- "classification": A categoria ("Produtivo" ou "Improdutivo").
- "confidence_score": Um número entre 0.0 e 1.0 indicando sua confiança na classificação.
- "key_topic": O tópico principal do e-mail em poucas palavras.
- "sentiment": O sentimento geral do e-mail ("Positivo", "Negativo" ou "Neutro").
- "suggested_response": Se o e-mail for "Produtivo", sugira uma resposta curta e profissional. Se for "Improdutivo", retorne "Nenhuma resposta necessária.".

Retorne apenas o JSON, sem nenhum texto, markdown ou explicação adicional.`

// Builder renders classification prompts.
type Builder struct{}

// NewBuilder creates a new prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Render substitutes the email text into the instruction template.
func (b *Builder) Render(emailText string) string {
	return fmt.Sprintf(classifyTemplate, emailText)
}
