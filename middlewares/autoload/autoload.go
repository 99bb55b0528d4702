package autoload

// Import all middleware subpackages for side-effect registration.
import (
	_ "jiva/middlewares/emergency"
	_ "jiva/middlewares/greeting"
	_ "jiva/middlewares/medreminder"
)
