package cli

// welcomeMessage is echoed by the tracked shell right after it opens.
const welcomeMessage = `
██████╗░░█████╗░██╗██╗░░░░░███████╗██████╗░
██╔══██╗██╔══██╗██║██║░░░░░██╔════╝██╔══██╗
██████╦╝██║░░██║██║██║░░░░░█████╗░░██║░░██║
██╔══██╗██║░░██║██║██║░░░░░██╔══╝░░██║░░██║
██████╦╝╚█████╔╝██║███████╗███████╗██████╔╝
╚═════╝░░╚════╝░╚═╝╚══════╝╚══════╝╚═════╝░

Welcome to the Boiled Terminal

Every command you run here is automatically tracked
so you can build and reuse your own custom boilerplates.

Note:
For interactive commands, use flags instead of prompts.

Example:
npx create-next-app@latest my-app --ts --tailwind --app

Instead of:
npx create-next-app@latest
→ What is your project named? my-app
→ Would you like to use TypeScript? Yes
→ ...

──────────────────────────────────────────────────────────────
Start building!!
──────────────────────────────────────────────────────────────
`
