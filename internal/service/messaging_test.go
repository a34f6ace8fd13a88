package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhatsAppLink(t *testing.T) {
	cases := []struct {
		name  string
		phone string
		text  string
		want  string
	}{
		{
			name:  "sanitized phone",
			phone: "(11) 99999-0000",
			text:  "Olá mundo",
			want:  "https://api.whatsapp.com/send?phone=5511999990000&text=Ol%C3%A1%20mundo",
		},
		{
			name: "no phone",
			text: "a&b",
			want: "https://api.whatsapp.com/send?text=a%26b",
		},
		{
			name:  "literal plus",
			phone: "11999990000",
			text:  "1+1",
			want:  "https://api.whatsapp.com/send?phone=5511999990000&text=1%2B1",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WhatsAppLink(tc.phone, tc.text))
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t,
		"Olá Ana! Me chamo Bruno. Encontrei seu perfil no *ServiçoJá* e gostaria de um orçamento para *Pintor*.",
		contactGreeting("Ana", "Bruno", "Pintor"),
	)
	assert.Contains(t, completionMessage("Bruno", "Pintor"), "O serviço de *Pintor* foi concluído")
}
