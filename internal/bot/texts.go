package bot

import (
	"fmt"
	"strings"

	"github.com/iliyamo/venue-reservation-bot/internal/capacity"
	"github.com/iliyamo/venue-reservation-bot/internal/model"
)

// UrgencyMarker prefixes the greeting while the venue is in last call.
const UrgencyMarker = "🔥 *ÚLTIMOS LUGARES*"

const (
	msgReset          = "🔄 *Reinicio*\nVolviste al menú principal."
	msgHardReset      = "🗑️ *SISTEMA LIMPIO*\nBase de datos y memoria reiniciadas."
	msgFault          = "😵 Tuvimos un problema procesando tu mensaje. Empecemos de nuevo: escribí cualquier cosa para ver el menú."
	msgSoldOut        = "⛔ *SOLD OUT* ⛔\nCapacidad máxima alcanzada."
	msgChooseInvalid  = "Respondé 1, 2 o 3."
	msgAskGeneral     = "🎫 *General*: ¿Cuántas entradas?"
	msgAskVIPHolder   = "🍾 *Mesa VIP*: ¿A nombre de quién?"
	msgNumbersOnly    = "Solo números."
	msgMustBePositive = "Debe ser mayor a 0."
	msgGenerating     = "⏳ Generando tickets..."

	msgAdminPrompt      = "🔐 *PANEL ADMIN*\nIngresá tu contraseña:"
	msgAdminDenied      = "❌ Contraseña incorrecta."
	msgAdminMenu        = "✅ *Acceso Admin*\n\n1. 📊 Ver Dashboard\n2. 📢 Difusión Masiva\n3. 🎫 Alta VIP Manual\n4. 🚪 Cerrar Sesión"
	msgAdminInvalid     = "Opción no válida. Enviá 1, 2, 3 o 4."
	msgAdminLogout      = "🔒 Sesión cerrada."
	msgBroadcastPrompt  = "📢 *Modo Difusión*\nEscribí el mensaje para enviar a todos:"
	msgBroadcastEmpty   = "El mensaje no puede estar vacío. Escribí el texto a difundir:"
	msgBroadcastOff     = "⚠️ Difusión no disponible: la cola de eventos está desactivada.\n\nVolviendo al menú..."
	msgBroadcastFailed  = "⚠️ No se pudo encolar la difusión. Intentá más tarde.\n\nVolviendo al menú..."
	msgManualPrompt     = "🎫 *Alta Manual VIP*\n\nEscribí: *Nombre, Cantidad*\nEjemplo: _Messi, 10_\n\n(O escribí MENU para volver)"
	msgManualFormat     = "⚠️ *Error de Formato*\nFalta la coma.\n\nEscribí: *Nombre, Cantidad*\nEjemplo: _Ricky, 5_"
	msgManualCount      = "⚠️ La cantidad debe ser un número mayor a 0.\nEjemplo: _Ricky, 5_"
	msgManualAnother    = "¿Cargar otro? Enviá 'Nombre, Cantidad' o escribí MENU para salir."
	msgAdminEscapedMenu = "🔙 *Menú Admin*\n\n1. 📊 Ver Dashboard\n2. 📢 Difusión Masiva\n3. 🎫 Alta VIP Manual\n4. 🚪 Cerrar Sesión"
)

func greeting(venue, salutation string, occ capacity.Occupancy) string {
	var b strings.Builder
	if salutation != "" {
		fmt.Fprintf(&b, "👋 ¡Te envía *%s*!\n", salutation)
	}
	if occ.Band == capacity.BandLastCall {
		fmt.Fprintf(&b, "%s: quedan %d.\n", UrgencyMarker, occ.Remaining)
	}
	fmt.Fprintf(&b, "¡Hola! Bienvenid@ a *%s*.\n\n1. 🎫 Entrada General\n2. 🍾 Mesa VIP\n3. 🙋 Ayuda Humana", venue)
	return b.String()
}

func contactPartner(p model.ReferralPartner) string {
	return fmt.Sprintf("📞 Contactá a *%s* aquí:\n👉 https://wa.me/%s", p.Name, p.Contact)
}

func askGuestName(n int) string { return fmt.Sprintf("Nombre de la persona %d:", n) }

func confirmCount(n int) string { return fmt.Sprintf("Son %d personas.\n%s", n, askGuestName(1)) }

func guestCap(max int) string { return fmt.Sprintf("Máximo %d entradas por reserva.", max) }

func ticketIssued(name string) string { return "✅ Ticket: " + name }

func askVIPParty(holder string) string { return fmt.Sprintf("Hola %s, ¿cuántas personas?", holder) }

func vipConfirmed(holder string) string {
	return fmt.Sprintf("🥂 *CONFIRMADO*\nLista VIP para %s.\nPresentate en puerta.", holder)
}

func dashboard(total, vip int, occ capacity.Occupancy) string {
	return fmt.Sprintf("📊 *STATUS REPORT*\n\nTickets Totales: %d\nVIPs: %d\nPersonas: %d/%d\nOcupación: %d%%\n\n_Enviá 1 para actualizar._",
		total, vip, occ.Admitted, occ.Capacity, occ.Percent())
}

func broadcastQueued(n int) string {
	return fmt.Sprintf("🚀 *Difusión encolada*\nTu mensaje se enviará a %d destinatarios.\n\nVolviendo al menú...", n)
}

func manualCreated(name string, pax int) string {
	return fmt.Sprintf("✅ *Alta Exitosa*\nCliente: %s\nPax: %d", name, pax)
}
