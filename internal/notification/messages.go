package notification

import (
	"fmt"

	"go-gin-event-booking/internal/model"
)

func EventCreated(to, title string) model.Notification {
	return model.Notification{
		To:      to,
		Subject: fmt.Sprintf("New Event Created: %s", title),
		Body:    fmt.Sprintf("Your event \"%s\" has been successfully created.", title),
	}
}

func EventUpdated(to, title string) model.Notification {
	return model.Notification{
		To:      to,
		Subject: "Event Updated",
		Body:    fmt.Sprintf("Your event %s has been updated successfully.", title),
	}
}

func EventDeleted(to, title string) model.Notification {
	return model.Notification{
		To:      to,
		Subject: "Event Deleted",
		Body:    fmt.Sprintf("Your event %s has been deleted.", title),
	}
}

func AttendanceMarked(to, title string) model.Notification {
	return model.Notification{
		To:      to,
		Subject: "Event Attendance",
		Body:    fmt.Sprintf("You have been marked as attending the event %s.", title),
	}
}

func FeedbackReceived(to, title string) model.Notification {
	return model.Notification{
		To:      to,
		Subject: "Feedback Received",
		Body:    fmt.Sprintf("Thank you for your feedback on the event %s.", title),
	}
}

func DiscountCodeAdded(to, title string) model.Notification {
	return model.Notification{
		To:      to,
		Subject: "Discount Code Added",
		Body:    fmt.Sprintf("A discount code has been added to your event %s.", title),
	}
}

func TicketBooked(to, title string) model.Notification {
	return model.Notification{
		To:      to,
		Subject: "Ticket Booked",
		Body:    fmt.Sprintf("Your ticket for the event %s has been booked successfully.", title),
	}
}

func ReminderThreeDaysLeft(to, title string) model.Notification {
	return model.Notification{
		To:      to,
		Subject: "Event Reminder",
		Body:    fmt.Sprintf("Reminder: Your event %s is happening in 3 days!", title),
	}
}

func ReminderToday(to, title string) model.Notification {
	return model.Notification{
		To:      to,
		Subject: "Event Reminder",
		Body:    fmt.Sprintf("Reminder: Your event %s is happening today!", title),
	}
}
