package service

import (
	"fmt"
	"net/url"
	"strings"
)

// whatsappBaseURL — deep link; сообщение отправляет сам пользователь.
const whatsappBaseURL = "https://api.whatsapp.com/send"

// brazilDialCode — телефоны хранятся без кода страны.
const brazilDialCode = "55"

// WhatsAppLink собирает ссылку с предзаполненным текстом. Без телефона ссылка
// открывает выбор собеседника.
func WhatsAppLink(phone, text string) string {
	phone = sanitizeDigits(phone)
	if phone == "" {
		return whatsappBaseURL + "?text=" + escapeText(text)
	}
	return fmt.Sprintf("%s?phone=%s%s&text=%s", whatsappBaseURL, brazilDialCode, phone, escapeText(text))
}

// escapeText кодирует пробел как %20: "+" WhatsApp показывает буквально.
func escapeText(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func contactGreeting(providerName, clientName, serviceName string) string {
	return fmt.Sprintf(
		"Olá %s! Me chamo %s. Encontrei seu perfil no *ServiçoJá* e gostaria de um orçamento para *%s*.",
		providerName, clientName, serviceName,
	)
}

func completionMessage(clientName, serviceName string) string {
	return fmt.Sprintf(
		"Olá %s! O serviço de *%s* foi concluído com sucesso. Poderia avaliar meu atendimento? Isso é muito importante para mim! Link: LinkAvaliacao",
		clientName, serviceName,
	)
}
